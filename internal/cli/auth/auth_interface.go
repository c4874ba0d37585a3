package auth

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(serverHost, token string) error
	LoadToken(serverHost string) (string, error)
	DeleteToken(serverHost string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) SaveToken(serverHost, token string) error {
	return SaveToken(serverHost, token)
}

func (d *defaultTokenStore) LoadToken(serverHost string) (string, error) {
	return LoadToken(serverHost)
}

func (d *defaultTokenStore) DeleteToken(serverHost string) error {
	return DeleteToken(serverHost)
}
