package playback

import (
	"bytes"
	"fmt"
	"os/exec"
	"sync"

	"voicefy/internal/audio"

	"go.uber.org/zap"
)

// CommandOutput воспроизводит звук внешним плеером (mpv, ffplay).
// Временные ресурсы передаются через stdin, стабильные URL - аргументом.
type CommandOutput struct {
	command string
	args    []string
	logger  *zap.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandOutput создает выход на базе внешнего плеера
func NewCommandOutput(command string, args []string, logger *zap.Logger) *CommandOutput {
	return &CommandOutput{
		command: command,
		args:    args,
		logger:  logger,
	}
}

// Play запускает плеер; канал закрывается при выходе процесса
func (o *CommandOutput) Play(h *audio.Handle) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.killLocked()

	args := append([]string{}, o.args...)
	var stdin *bytes.Reader
	if h.IsTransient() {
		args = append(args, "-")
		stdin = bytes.NewReader(h.Data())
	} else {
		args = append(args, h.URL())
	}

	cmd := exec.Command(o.command, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ошибка запуска плеера %s: %w", o.command, err)
	}

	o.cmd = cmd
	ended := make(chan struct{})

	go func() {
		err := cmd.Wait()
		if err != nil {
			o.logger.Debug("плеер завершился", zap.Error(err))
		}

		o.mu.Lock()
		if o.cmd == cmd {
			o.cmd = nil
		}
		o.mu.Unlock()

		close(ended)
	}()

	o.logger.Debug("плеер запущен",
		zap.String("command", o.command),
		zap.Int("pid", cmd.Process.Pid))

	return ended, nil
}

// Stop останавливает текущий процесс плеера
func (o *CommandOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.killLocked()
}

func (o *CommandOutput) killLocked() {
	if o.cmd == nil || o.cmd.Process == nil {
		return
	}
	if err := o.cmd.Process.Kill(); err != nil {
		o.logger.Debug("ошибка остановки плеера", zap.Error(err))
	}
	o.cmd = nil
}

// SilentOutput - выход для сервера без звуковой карты.
// Звук играет клиент по URL ресурса и сообщает о завершении через Controller.NotifyEnded.
type SilentOutput struct{}

// Play ничего не воспроизводит; естественное завершение приходит извне
func (SilentOutput) Play(*audio.Handle) (<-chan struct{}, error) {
	return nil, nil
}

// Stop ничего не делает
func (SilentOutput) Stop() {}
