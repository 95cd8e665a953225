package bars

import (
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"brestbar/app"
)

// QRHandler handles /bars/qr?id=N, serving a QR code PNG of the bar's
// directions link for scanning off the popup.
func QRHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		app.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	b := Get(id)
	if b == nil {
		app.RespondError(w, http.StatusNotFound, "unknown bar")
		return
	}

	png, err := qrcode.Encode(directionsURL(b), qrcode.Medium, 256)
	if err != nil {
		app.Log("bars", "QR encode for %d failed: %v", id, err)
		app.RespondError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
