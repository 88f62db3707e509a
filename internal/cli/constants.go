package cli

const (
	FlagTypeBool        FlagType = "bool"
	FlagTypeDuration    FlagType = "duration"
	FlagTypeString      FlagType = "string"
	FlagTypeStringSlice FlagType = "stringslice"
)
