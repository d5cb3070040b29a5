package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

// VolumeResponse is one volume with raw byte counts and display strings in the requested unit
type VolumeResponse struct {
	Name           string  `json:"name"`
	MountPoint     string  `json:"mount_point"`
	Device         string  `json:"device"`
	Fstype         string  `json:"fstype"`
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	PercentUsed    float64 `json:"percent_used"`
	Total          string  `json:"total"`
	Used           string  `json:"used"`
	Available      string  `json:"available"`
	Percent        string  `json:"percent"`
}

// VolumesResponse is the body of GET /api/v1/volumes
type VolumesResponse struct {
	Unit    string           `json:"unit"`
	Taken   time.Time        `json:"taken"`
	Volumes []VolumeResponse `json:"volumes"`
}

// GetVolumes handles GET /api/v1/volumes?unit=GB
func (c *Controller) GetVolumes(ctx echo.Context) error {
	unit := c.displayUnit
	if raw := ctx.QueryParam("unit"); raw != "" {
		u, err := units.ParseUnit(raw)
		if err != nil {
			return c.HandleError(ctx, err, "Unsupported unit, use KB, MB, GB or TB", http.StatusBadRequest)
		}
		unit = u
	}

	snap := c.volumes.Latest()
	if snap.Taken.IsZero() {
		snap = c.volumes.Poll()
	}
	if snap.Err != nil {
		return c.HandleError(ctx, snap.Err, "Failed to read mounted volumes", http.StatusInternalServerError)
	}

	resp := VolumesResponse{
		Unit:    unit.String(),
		Taken:   snap.Taken,
		Volumes: make([]VolumeResponse, 0, len(snap.Volumes)),
	}
	for i := range snap.Volumes {
		resp.Volumes = append(resp.Volumes, newVolumeResponse(&snap.Volumes[i], unit))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func newVolumeResponse(v *volumes.VolumeInfo, unit units.Unit) VolumeResponse {
	available := v.AvailableBytes()
	display := func(b uint64) string {
		f, _ := units.FromBytesUint(b, unit)
		return fmt.Sprintf("%.2f", f)
	}
	return VolumeResponse{
		Name:           v.Name,
		MountPoint:     v.MountPoint,
		Device:         v.Device,
		Fstype:         v.Fstype,
		TotalBytes:     v.TotalBytes,
		UsedBytes:      v.UsedBytes,
		AvailableBytes: available,
		PercentUsed:    v.PercentUsed,
		Total:          display(v.TotalBytes),
		Used:           display(v.UsedBytes),
		Available:      display(available),
		Percent:        fmt.Sprintf("%.1f", v.PercentUsed),
	}
}
