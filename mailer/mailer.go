package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Send delivers a plain-text mail through the configured SMTP relay.
// A missing SMTP config is logged and swallowed so notification failures
// never break the request path.
func Send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	pass := os.Getenv("SMTP_PASSWORD")

	if host == "" || from == "" {
		log.Printf("mailer: SMTP not configured, dropping mail to %s (%s)", to, subject)
		return nil
	}
	if port == "" {
		port = "587"
	}

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", to, subject, body))
	auth := smtp.PlainAuth("", from, pass, host)
	return smtp.SendMail(host+":"+port, auth, from, []string{to}, msg)
}

// SendOTP mails a one-time verification code.
func SendOTP(toEmail, otp string) error {
	return Send(toEmail, "Email Verification", "Your OTP is: "+otp+"\nIt expires in 5 minutes.")
}

// SendBookingConfirmed notifies the renter or an owner about a confirmed booking.
func SendBookingConfirmed(toEmail, bookingID string, total float64) error {
	body := fmt.Sprintf("Booking %s is confirmed. Total charged: %.2f", bookingID, total)
	return Send(toEmail, "Booking confirmed", body)
}
