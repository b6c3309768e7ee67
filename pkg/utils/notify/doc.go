// Package notify renders user-facing CLI messages with consistent symbols and
// colors. Warnings and errors are visually distinct; warnings never affect the
// process exit code.
package notify
