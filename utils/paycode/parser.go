package paycode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidCode = errors.New("invalid payment code")
	ErrChecksum    = errors.New("payment code checksum mismatch")
	ErrOpenAmount  = errors.New("payment code carries no amount")
)

// A typed boleto line: 00190.00009 02796.388904 00012.345187 5 98760000123456
var boletoLineRegex = regexp.MustCompile(`\d{5}[.\s]?\d{5}\s*\d{5}[.\s]?\d{6}\s*\d{5}[.\s]?\d{6}\s*\d\s*\d{14}`)

// FindBoletoLine scans text for a bank slip typed line and returns the first
// one whose check digits are valid.
func FindBoletoLine(text string) (float64, bool) {
	for _, m := range boletoLineRegex.FindAllString(text, -1) {
		if amount, err := BoletoLineAmount(m); err == nil {
			return amount, true
		}
	}
	return 0, false
}

// Amount decodes a raw payload read from a page image: a 44 digit boleto
// barcode, a 47 digit typed line or a PIX BR Code.
func Amount(code string) (float64, error) {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "000201") {
		return PixAmount(code)
	}
	digits := onlyDigits(code)
	switch len(digits) {
	case 44:
		return BoletoBarcodeAmount(digits)
	case 47:
		return BoletoLineAmount(digits)
	}
	return 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidCode, len(digits))
}

// BoletoLineAmount validates a 47 digit typed line and returns its amount.
func BoletoLineAmount(line string) (float64, error) {
	d := onlyDigits(line)
	if len(d) != 47 {
		return 0, fmt.Errorf("%w: typed line must have 47 digits, got %d", ErrInvalidCode, len(d))
	}
	fields := [][2]int{{0, 9}, {10, 20}, {21, 31}}
	for _, f := range fields {
		if mod10(d[f[0]:f[1]]) != int(d[f[1]]-'0') {
			return 0, fmt.Errorf("%w: field %s", ErrChecksum, d[f[0]:f[1]+1])
		}
	}
	barcode := d[0:4] + d[32:33] + d[33:47] + d[4:9] + d[10:20] + d[21:31]
	return BoletoBarcodeAmount(barcode)
}

// BoletoBarcodeAmount validates a 44 digit ITF barcode and returns its amount.
func BoletoBarcodeAmount(code string) (float64, error) {
	if len(code) != 44 || onlyDigits(code) != code {
		return 0, fmt.Errorf("%w: barcode must have 44 digits", ErrInvalidCode)
	}
	if code[3] != '9' {
		return 0, fmt.Errorf("%w: currency %c is not BRL", ErrInvalidCode, code[3])
	}
	if mod11(code[:4]+code[5:]) != int(code[4]-'0') {
		return 0, fmt.Errorf("%w: general check digit", ErrChecksum)
	}
	cents, err := strconv.ParseInt(code[9:19], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if cents == 0 {
		return 0, ErrOpenAmount
	}
	return float64(cents) / 100, nil
}

// PixAmount reads tag 54 of an EMV BR Code after checking its CRC16.
func PixAmount(payload string) (float64, error) {
	idx := strings.LastIndex(payload, "6304")
	if idx < 0 || len(payload) != idx+8 {
		return 0, fmt.Errorf("%w: missing CRC field", ErrInvalidCode)
	}
	want := strings.ToUpper(payload[idx+4:])
	if got := fmt.Sprintf("%04X", crc16(payload[:idx+4])); got != want {
		return 0, fmt.Errorf("%w: crc %s != %s", ErrChecksum, got, want)
	}

	rest := payload[:idx]
	for len(rest) >= 4 {
		id := rest[:2]
		n, err := strconv.Atoi(rest[2:4])
		if err != nil || len(rest) < 4+n {
			return 0, fmt.Errorf("%w: malformed field %s", ErrInvalidCode, id)
		}
		value := rest[4 : 4+n]
		if id == "54" {
			amount, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: amount %q", ErrInvalidCode, value)
			}
			if amount <= 0 {
				return 0, ErrOpenAmount
			}
			return amount, nil
		}
		rest = rest[4+n:]
	}
	return 0, ErrOpenAmount
}

func mod10(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		p := int(digits[i]-'0') * weight
		sum += p/10 + p%10
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	return (10 - sum%10) % 10
}

func mod11(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		if weight < 9 {
			weight++
		} else {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv == 0 || dv == 10 || dv == 11 {
		return 1
	}
	return dv
}

// crc16 is CRC-16/CCITT-FALSE as required by the BR Code standard.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
