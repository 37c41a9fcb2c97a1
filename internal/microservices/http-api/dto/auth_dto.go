package dto

// Data Transfer Objects for authentication requests and responses

// LoginRequest: payload for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse: token plus a digest of the signed-in user
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"` // seconds
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}
