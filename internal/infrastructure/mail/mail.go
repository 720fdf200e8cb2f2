package mail

import (
	"github.com/minutemart/storefront-service/config"
	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func CreateMailSender(config *config.Config) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(config.SMTPConfig.Host, config.SMTPConfig.Port, config.SMTPConfig.Sender, config.SMTPConfig.Password),
		from:   config.SMTPConfig.Sender,
	}
}

func (s *Sender) Send(to, subject, htmlBody string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(message)
}
