package common

// DefaultLanguage is the locale used when a translation is requested for a
// language the catalog does not carry.
const DefaultLanguage = "en-US"
