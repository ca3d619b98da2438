// Package logger wraps zap with a global sugared logger and context helpers
// (ToContext/FromContext/WithName/WithKV), so every service pulls a scoped,
// structured logger out of the context it was handed.
package logger
