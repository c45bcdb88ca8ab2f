package model

import "time"

// User represents an application user record as stored in the `users` table.
// The password hash and the two-factor secret never leave the repository
// layer; responses use the Public projection instead.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Username         – unique login name.
//  PasswordHash     – bcrypt hashed password.
//  Email            – unique email address.
//  Phone            – contact phone number.
//  IsActive         – whether the account is active.
//  TwoFactorEnabled – whether logins require a secondary code.
//  TwoFactorSecret  – shared secret for the secondary channel (may be empty).
//  SocialProviders  – provider name -> provider-side user id.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
    ID               uint64            // users.id
    Username         string            // users.username
    PasswordHash     string            // users.password_hash
    Email            string            // users.email
    Phone            string            // users.phone
    IsActive         bool              // users.is_active
    TwoFactorEnabled bool              // users.two_factor_enabled
    TwoFactorSecret  string            // users.two_factor_secret
    SocialProviders  map[string]string // users.social_providers (JSON column)
    CreatedAt        time.Time         // users.created_at
    UpdatedAt        time.Time         // users.updated_at
}

// PublicUser is the cleaned projection returned to clients: all identity
// fields, no credential material.
type PublicUser struct {
    ID               uint64    `json:"id"`
    Username         string    `json:"username"`
    Email            string    `json:"email"`
    Phone            string    `json:"phone"`
    Active           bool      `json:"active"`
    TwoFactorEnabled bool      `json:"twoFactorEnabled"`
    CreatedAt        time.Time `json:"createdAt"`
    UpdatedAt        time.Time `json:"updatedAt"`
}

// Public strips credential material from a user record.
func (u User) Public() PublicUser {
    return PublicUser{
        ID:               u.ID,
        Username:         u.Username,
        Email:            u.Email,
        Phone:            u.Phone,
        Active:           u.IsActive,
        TwoFactorEnabled: u.TwoFactorEnabled,
        CreatedAt:        u.CreatedAt,
        UpdatedAt:        u.UpdatedAt,
    }
}
