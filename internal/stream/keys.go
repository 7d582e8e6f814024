package stream

const (
	streamKeySuffix = ":stream"
	tokenKeyPrefix  = "_serial_"
	tokenKeySuffix  = "_token"
)

// StreamKey derives the log key from the group name.
func StreamKey(group string) string { return group + streamKeySuffix }

// TokenKey derives the coordination token key for a business key.
func TokenKey(key string) string { return tokenKeyPrefix + key + tokenKeySuffix }
