// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// HostInfo describes the machine the bridge runs on.
type HostInfo struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	Arch            string
	UptimeSeconds   uint64
	LogicalCPUs     int
}

// MemoryInfo is a point-in-time memory reading in bytes.
type MemoryInfo struct {
	Total       uint64
	Available   uint64
	UsedPercent float64
}

// Probe reads system information.
type Probe interface {
	Host(ctx context.Context) (HostInfo, error)
	Memory(ctx context.Context) (MemoryInfo, error)
}

// GopsutilProbe reads system information through gopsutil.
type GopsutilProbe struct{}

func (GopsutilProbe) Host(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, errors.Wrap(err, errors.CodeSysinfoFailure, "reading host info")
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return HostInfo{}, errors.Wrap(err, errors.CodeSysinfoFailure, "counting cpus")
	}
	arch := info.KernelArch
	if arch == "" {
		arch = runtime.GOARCH
	}
	return HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		Arch:            arch,
		UptimeSeconds:   info.Uptime,
		LogicalCPUs:     cpus,
	}, nil
}

func (GopsutilProbe) Memory(ctx context.Context) (MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, errors.Wrap(err, errors.CodeSysinfoFailure, "reading memory")
	}
	return MemoryInfo{Total: vm.Total, Available: vm.Available, UsedPercent: vm.UsedPercent}, nil
}

// NewSystem returns the system plugin. info answers with host details;
// snapshot answers with a multipart result of host and memory readings,
// each part carrying its own status.
func NewSystem(p Probe) bridge.Plugin {
	return bridge.NewPlugin(SystemName, map[string]bridge.Handler{
		"info": func(cmd *bridge.Command) {
			h, err := p.Host(context.Background())
			if err != nil {
				failWith(cmd, bridge.StatusIOError, err)
				return
			}
			cmd.SuccessWithDictionary(hostFields(h))
		},
		"snapshot": func(cmd *bridge.Command) {
			ctx := context.Background()
			cmd.SuccessWithMultipart(hostPart(ctx, p), memoryPart(ctx, p))
		},
	})
}

func hostFields(h HostInfo) map[string]bridge.Message {
	return map[string]bridge.Message{
		"hostname":        bridge.StringMessage(h.Hostname),
		"os":              bridge.StringMessage(h.OS),
		"platform":        bridge.StringMessage(h.Platform),
		"platformVersion": bridge.StringMessage(h.PlatformVersion),
		"arch":            bridge.StringMessage(h.Arch),
		"uptime":          bridge.IntMessage(int64(h.UptimeSeconds)),
		"cpus":            bridge.IntMessage(int64(h.LogicalCPUs)),
	}
}

func hostPart(ctx context.Context, p Probe) bridge.Result {
	h, err := p.Host(ctx)
	if err != nil {
		return bridge.NewResult(bridge.StatusIOError, bridge.StringMessage(err.Error()))
	}
	return bridge.NewResult(bridge.StatusOK, bridge.MapMessage(hostFields(h)))
}

func memoryPart(ctx context.Context, p Probe) bridge.Result {
	m, err := p.Memory(ctx)
	if err != nil {
		return bridge.NewResult(bridge.StatusIOError, bridge.StringMessage(err.Error()))
	}
	return bridge.NewResult(bridge.StatusOK, bridge.MapMessage(map[string]bridge.Message{
		"total":       bridge.IntMessage(int64(m.Total)),
		"available":   bridge.IntMessage(int64(m.Available)),
		"usedPercent": bridge.DoubleMessage(m.UsedPercent),
	}))
}
