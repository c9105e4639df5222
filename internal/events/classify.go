package events

import "linkbio/internal/pkg/user_agent"

// ClassifyDevice maps a client signature to the stored device type.
func ClassifyDevice(userAgent string) DeviceType {
	if user_agent.IsMobile(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}
