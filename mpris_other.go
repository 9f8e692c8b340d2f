//go:build !linux

package main

import (
	"errors"

	"github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// MPRISServer is a no-op outside Linux
type MPRISServer struct{}

func startMPRIS(logger *zap.Logger, send func(tea.Msg)) (*MPRISServer, error) {
	return nil, errors.New("MPRIS is only available on Linux")
}

func (s *MPRISServer) Update(st remoteState) {}
func (s *MPRISServer) Seeked(position float64) {}
func (s *MPRISServer) Close() error { return nil }
