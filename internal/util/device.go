package util

import "strings"

// Device classes returned by DeviceClass.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

var (
	mobileKeywords = []string{
		"mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini",
	}
	tabletKeywords = []string{"ipad", "tablet", "kindle", "silk"}
)

// DeviceClass derives a layout hint from a User-Agent header.
// Tablet keywords win over mobile ones because most tablet agents also
// advertise "android" or "mobile".
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, kw := range tabletKeywords {
		if strings.Contains(ua, kw) {
			return DeviceTablet
		}
	}
	for _, kw := range mobileKeywords {
		if strings.Contains(ua, kw) {
			return DeviceMobile
		}
	}
	return DeviceDesktop
}
