package deferlink

// Version is the SDK release version, reported in the User-Agent of every
// request.
const Version = "1.2.0"

// userAgent identifies this SDK to the attribution server.
const userAgent = "DeferLink-Go/" + Version
