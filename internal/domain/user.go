package domain

import "time"

// User es la cuenta registrada; inmutable despues de su creacion.
type User struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserView es la proyeccion publica de un usuario (sin rol ni metadatos).
type UserView struct {
	ID          string `json:"id"`
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// ToView proyecta el usuario a su vista publica.
func (u User) ToView() UserView {
	return UserView{
		ID:          u.ID,
		AccountID:   u.AccountID,
		DisplayName: u.DisplayName,
	}
}
