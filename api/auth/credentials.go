package auth

const mask = "******"

// Credentials for the AVISO data service.
// The password is never rendered by String or GoString, so a Credentials
// value is safe to pass to fmt and to the loggers.
type Credentials struct {
	username string
	password string
}

func NewCredentials(username, password string) Credentials {
	return Credentials{
		username: username,
		password: password,
	}
}

func (c Credentials) Username() string {
	return c.username
}

func (c Credentials) Password() string {
	return c.password
}

// IsZero reports whether either half of the pair is missing.
func (c Credentials) IsZero() bool {
	return c.username == "" || c.password == ""
}

func (c Credentials) String() string {
	if c.password == "" {
		return c.username
	}
	return c.username + ":" + mask
}

func (c Credentials) GoString() string {
	return "auth.Credentials{" + c.String() + "}"
}
