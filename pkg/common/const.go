package common

const (
	KEY_PRICE_CACHE   = "price:%s"
	KEY_INSIGHT_CACHE = "insight:%s"
)

const (
	ENV_PRODUCTION = "production"
)

const (
	// Set on the echo context by the JWT middleware.
	CTX_KEY_USER_ID    = "user_id"
	CTX_KEY_USER_EMAIL = "user_email"
)

const (
	DATE_LAYOUT = "2006-01-02"
)
