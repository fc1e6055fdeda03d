/**
 * @description
 * This file defines the user account and identity-upgrade models handled by
 * the console's users and upgrades views. Upgrade requests carry a
 * level-specific evidence payload: level 2 submits a national id plus one
 * image, level 3 submits address fields plus two verification images.
 */

package domain

import "encoding/json"

// User represents one marketplace account as listed by the backend.
type User struct {
	ID               int64       `json:"id"`
	FullName         string      `json:"full_name"`
	Email            string      `json:"email"`
	PhoneNumber      string      `json:"phone_number"`
	Level            string      `json:"level"`
	TransactionLimit json.Number `json:"transaction_limit"`
}

// UserRef is the embedded user reference on upgrade requests.
type UserRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// UpgradeRequest is one pending identity-upgrade submission. The level-2 and
// level-3 fields are mutually exclusive; which set is populated follows the
// collection the request was fetched from.
type UpgradeRequest struct {
	ID     int64   `json:"id"`
	User   UserRef `json:"user"`
	Status string  `json:"status"`

	// Level 2 evidence.
	NIN      string `json:"nin,omitempty"`
	NINImage string `json:"nin_image,omitempty"`

	// Level 3 evidence.
	HouseAddress1         string `json:"house_address_1,omitempty"`
	HouseAddress2         string `json:"house_address_2,omitempty"`
	NearestBusStop        string `json:"nearest_bus_stop,omitempty"`
	City                  string `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	Country               string `json:"country,omitempty"`
	ProofOfAddressImage   string `json:"proof_of_address_image,omitempty"`
	FaceVerificationImage string `json:"face_verification_image,omitempty"`
}

// UserPayload is the outgoing body for user create/update.
type UserPayload struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Status      string `json:"status"`
}

// LoginRequest is the credential body posted to the backend's login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the tokens issued on a successful login. Refresh is
// optional; when absent only the access token is persisted.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
