package mailer

import (
	"log"

	"gopkg.in/gomail.v2"

	"DriveDNA/config"
)

// 單封通知信
type Message struct {
	To      string
	Subject string
	HTML    string
}

// 通知信僅盡力寄送:實作不可阻塞呼叫端,失敗只記錄不回傳
type Sender interface {
	Send(msg Message)
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(config config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

// 非同步寄送通知信,不等待結果
func (s *SMTPSender) Send(msg Message) {
	go func() {
		m := gomail.NewMessage()
		m.SetHeader("From", s.from)
		m.SetHeader("To", msg.To)
		m.SetHeader("Subject", msg.Subject)
		m.SetBody("text/html", msg.HTML)

		if err := s.dialer.DialAndSend(m); err != nil {
			log.Printf("寄送通知信失敗 to=%s subject=%s: %v", msg.To, msg.Subject, err)
		}
	}()
}
