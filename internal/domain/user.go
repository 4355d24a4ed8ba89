package domain

// AuthenticatedUser идентичность вызывающего, извлеченная из проверенного
// сессионного токена. Передается в обработчики явно, без скрытых обращений
// к сервису аутентификации.
type AuthenticatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
