package entity

// StoredImage is an asset held by the image store. It is never persisted
// on its own; User.ProfileImage keeps the URL.
type StoredImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
