package domain

import "time"

// User is a chat user known to the bot. TelegramUserID is the durable
// principal identity; ChatID is where the bot can reach them.
type User struct {
	ID             int64
	TelegramUserID int64
	ChatID         int64
	UserName       string
	VerifyCode     string
	CreatedAt      time.Time
}
