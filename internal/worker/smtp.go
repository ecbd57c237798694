package worker

import "net/smtp"

// SMTPSender sends mail through a plain SMTP relay without auth, the shape
// used by local relays such as MailHog.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{addr: host + ":" + port, from: from}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := "From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}
