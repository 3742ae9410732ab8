// Package sh provides the beslink command shell.
package sh
