package v1

import (
	"net/http"

	"github.com/karloscodes/cartridge"

	"linkbio/internal/events"
	"linkbio/internal/pkg/clientip"
	"linkbio/internal/pkg/user_agent"
)

// DeviceInfo describes how the caller's client is classified.
type DeviceInfo struct {
	DeviceType events.DeviceType `json:"device_type"`
	Browser    string            `json:"browser"`
	OS         string            `json:"os"`
}

// GetDeviceInfoHandler reports the device class that events from the
// calling client would be stored with.
func GetDeviceInfoHandler(ctx *cartridge.Context) error {
	client := clientip.ClientFor(ctx.Ctx)
	parsed := user_agent.ParseUserAgent(client.UserAgent)

	return ctx.Status(http.StatusOK).JSON(DeviceInfo{
		DeviceType: events.ClassifyDevice(client.UserAgent),
		Browser:    parsed.Browser,
		OS:         parsed.OS,
	})
}
