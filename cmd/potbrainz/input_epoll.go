//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// epollWaitMS bounds each epoll_wait so cancellation is noticed promptly.
const epollWaitMS = 250

// runInputReader opens the configured evdev devices, reads them with a single
// epoll loop, and forwards translated events to the daemon until ctx is
// canceled or a device fails.
func runInputReader(ctx context.Context, cfg InputConfig, events chan<- Event, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(cfg.Devices))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, dev := range cfg.Devices {
		path := ExpandPath(dev)
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input device %s: %w", path, err)
		}
		files = append(files, f)
		logger.Info("input device opened", "device", path)
	}

	translator := newInputTranslator(cfg)
	return readInputEventsEpoll(ctx, files, func(ev inputEvent) {
		out := translator.translate(ev)
		if out == nil {
			return
		}
		select {
		case events <- out:
		default:
			logger.Warn("input event dropped (queue full)", "type", fmt.Sprintf("%T", out))
		}
	})
}

// readInputEventsEpoll multiplexes every device onto one goroutine: the
// kernel wakes us only when a device has data.
func readInputEventsEpoll(ctx context.Context, files []*os.File, handle func(inputEvent)) error {
	if len(files) == 0 {
		return errors.New("no input devices provided")
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fdToFile := make(map[int]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		fdToFile[fd] = f

		event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
		}
	}

	const maxEvents = 32
	ready := make([]unix.EpollEvent, maxEvents)
	buf := make([]byte, inputEventSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, ready, epollWaitMS)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			f := fdToFile[int(ready[i].Fd)]

			if ready[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("device error/hangup: %s", f.Name())
			}

			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read from %s: %w", f.Name(), err)
			}

			ev, err := decodeInputEvent(buf)
			if err != nil {
				continue
			}
			handle(ev)
		}
	}
}
