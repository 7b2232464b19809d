package booking

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"rentora/models"
	"rentora/utils"
)

func receiptSecret() []byte {
	if s := os.Getenv("RECEIPT_HMAC_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("rentora-receipt-secret")
}

// receiptPayload returns a signed payload string: bookingID|orderID|signature.
// Owners can scan it at handover to verify the booking is genuine.
func receiptPayload(bookingID, orderID string) string {
	data := fmt.Sprintf("%s|%s", bookingID, orderID)
	h := hmac.New(sha256.New, receiptSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// PrintReceipt renders a confirmed booking as a PDF receipt with a signed QR
// code. Pending and canceled bookings have nothing to hand over.
//
// GET /api/bookings/:bookingid/receipt
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, ok := h.loadOwnBooking(ctx, w, r, ps.ByName("bookingid"))
	if !ok {
		return
	}
	if b.Status != models.BookingConfirmed {
		utils.RespondWithError(w, http.StatusConflict, "Receipt available only for confirmed bookings")
		return
	}

	qrPNG, err := qrcode.Encode(receiptPayload(b.BookingID, b.OrderID), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Rental Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Booking: %s", b.BookingID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Renter: %s", b.RequesterName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Confirmed: %s", b.ConfirmedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	for _, line := range b.Lines {
		pdf.Cell(0, 8, fmt.Sprintf("%s  %s to %s  %.2f", line.ItemName, line.StartDate, line.EndDate, line.Price))
		pdf.Ln(6)
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Total: %.2f", b.Total))

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+b.BookingID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
