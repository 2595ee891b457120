package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

func sendMail(to, subject, htmlBody string) error {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_FROM"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(os.Getenv("SMTP_HOST"), port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))
	return d.DialAndSend(m)
}

// SendPurchaseReceiptEmail emails a receipt after a confirmed credit purchase.
// Failures are logged, never surfaced: the purchase is already ledgered.
func SendPurchaseReceiptEmail(to string, credits int64, source, reference string) {
	body := fmt.Sprintf(
		"<h2>Thank you for your purchase</h2>"+
			"<p>%d credits have been added to your QuillGen account.</p>"+
			"<p>Payment method: %s<br>Reference: %s</p>",
		credits, source, reference)
	if err := sendMail(to, "Your QuillGen credits", body); err != nil {
		LogError("Failed to send purchase receipt to %s: %v", to, err)
	}
}

// SendReferralRewardEmail notifies a referrer that their reward was credited.
func SendReferralRewardEmail(to string, credits int64) {
	body := fmt.Sprintf(
		"<h2>Referral reward</h2>"+
			"<p>Someone you referred just made their first purchase. "+
			"%d credits have been added to your account.</p>", credits)
	if err := sendMail(to, "You earned referral credits", body); err != nil {
		LogError("Failed to send referral reward email to %s: %v", to, err)
	}
}
