package service

import (
	"strings"

	"github.com/dropsync-next/internal/constants"
)

// countryCodes 国家名称到 ISO 3166-1 alpha-2 的映射
var countryCodes = map[string]string{
	"South Africa":   "ZA",
	"ZA":             "ZA",
	"RSA":            "ZA",
	"SA":             "ZA",
	"Namibia":        "NA",
	"Botswana":       "BW",
	"Zimbabwe":       "ZW",
	"Mozambique":     "MZ",
	"Lesotho":        "LS",
	"Eswatini":       "SZ",
	"Swaziland":      "SZ",
	"Kenya":          "KE",
	"Nigeria":        "NG",
	"United States":  "US",
	"USA":            "US",
	"United Kingdom": "GB",
	"UK":             "GB",
	"Great Britain":  "GB",
	"Australia":      "AU",
	"Canada":         "CA",
	"Germany":        "DE",
	"France":         "FR",
	"China":          "CN",
}

var countryCodesLower = func() map[string]string {
	lowered := make(map[string]string, len(countryCodes))
	for name, code := range countryCodes {
		lowered[strings.ToLower(name)] = code
	}
	return lowered
}()

// NormalizeCountryCode 将收件国家转换为两位国家编码，无法识别时回退到默认国家
func NormalizeCountryCode(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return constants.DefaultCountryCode
	}
	if code, ok := countryCodes[value]; ok {
		return code
	}
	if code, ok := countryCodesLower[strings.ToLower(value)]; ok {
		return code
	}
	if len(value) == 2 && isASCIILetters(value) {
		return strings.ToUpper(value)
	}
	return constants.DefaultCountryCode
}

func isASCIILetters(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
