package client

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// BarcodeScanner decodes payment codes printed on a page: the ITF barcode of
// a boleto and PIX QR codes.
type BarcodeScanner struct{}

func NewBarcodeScanner() *BarcodeScanner {
	return &BarcodeScanner{}
}

// Scan returns the raw payload of every code found on the page.
func (s *BarcodeScanner) Scan(img image.Image) []string {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	readers := []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewITFReader(),
	}

	var codes []string
	for _, r := range readers {
		result, err := r.Decode(bmp, hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			codes = append(codes, text)
		}
	}
	return codes
}
