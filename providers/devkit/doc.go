// Package devkit holds test doubles shared by the provider packages.
package devkit
