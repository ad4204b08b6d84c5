package dto

// RegisterIdentityRequest: un tenant_id enviado por el cliente se ignora.
type RegisterIdentityRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	TenantID  string `json:"tenant_id,omitempty"`
}
