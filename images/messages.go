package images

import (
	"fmt"
	"net/http"
	"strings"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/imgcompress"
	"github.com/dustin/go-humanize"
)

// Message renders an outcome as the one-line text shown to the person who uploaded the image.
func Message(o imgcompress.Outcome, name string) string {
	switch o.Kind {
	case imgcompress.Compressed:
		return fmt.Sprintf("Reduced image size of %s from %s to %s",
			OutputName(name, o.Format),
			humanize.IBytes(uint64(o.OriginalSize)),
			humanize.IBytes(uint64(o.Size)))
	case imgcompress.NoImprovement:
		return msgNoImprovement
	case imgcompress.StillTooLarge:
		return fmt.Sprintf("Could not compress image to less than %s", humanize.IBytes(uint64(ceiling())))
	case imgcompress.Cancelled:
		return msgTimedOut
	}
	if o.Err != nil {
		return msgFailedPrefix + o.Err.Error()
	}
	return msgFailedPrefix + o.Kind.String()
}

// OutputName keeps the uploaded file name, since the format never changes.
func OutputName(name string, f imgcompress.Format) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "image" + f.Extension()
}

func statusFor(k imgcompress.Kind) int {
	switch k {
	case imgcompress.Compressed:
		return http.StatusOK
	case imgcompress.NoImprovement, imgcompress.StillTooLarge:
		return http.StatusUnprocessableEntity
	case imgcompress.UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case imgcompress.DecodeFailed:
		return http.StatusBadRequest
	case imgcompress.Cancelled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ceiling() int {
	if c := conf.Config.Compression.MaxUploadSize; c > 0 {
		return c
	}
	return imgcompress.MaxUploadSize
}
