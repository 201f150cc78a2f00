package domain

import "time"

// Setting is a key/value configuration row in the primary store.
// The setting name is the primary key; values are overwritten in place.
type Setting struct {
	SettingName string    `json:"setting_name"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingListOptions controls ordering of setting listings.
type SettingListOptions struct {
	SortField string
	SortDesc  bool
}

// SettingRepository defines data access for settings (store A).
type SettingRepository interface {
	Create(setting *Setting) error
	Get(name string) (*Setting, error)
	Update(name, value string) (*Setting, error)
	Delete(name string) (bool, error)
	List(opts SettingListOptions) ([]*Setting, error)
}
