package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// sysfsPWM drives one channel of a Linux sysfs PWM chip.
type sysfsPWM struct {
	dir    string
	period time.Duration
}

func openSysfsPWM(cfg PWMConfig) (*sysfsPWM, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("pwm period must be positive, got %v", cfg.Period)
	}
	dir := filepath.Join(cfg.Root, fmt.Sprintf("pwm%d", cfg.Channel))
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeSysfs(filepath.Join(cfg.Root, "export"), strconv.Itoa(cfg.Channel)); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", cfg.Channel, err)
		}
	}

	p := &sysfsPWM{dir: dir, period: cfg.Period}
	// duty_cycle must never exceed period, so zero it before setting period.
	if err := p.write("duty_cycle", "0"); err != nil {
		return nil, err
	}
	if err := p.write("period", strconv.FormatInt(cfg.Period.Nanoseconds(), 10)); err != nil {
		return nil, err
	}
	if err := p.write("enable", "1"); err != nil {
		return nil, err
	}
	return p, nil
}

// duty converts a 0..255 level to nanoseconds of the period.
func (p *sysfsPWM) duty(value uint8) int64 {
	return p.period.Nanoseconds() * int64(value) / 255
}

func (p *sysfsPWM) set(value uint8) error {
	return p.write("duty_cycle", strconv.FormatInt(p.duty(value), 10))
}

func (p *sysfsPWM) close() error {
	if err := p.write("duty_cycle", "0"); err != nil {
		return err
	}
	return p.write("enable", "0")
}

func (p *sysfsPWM) write(attr, value string) error {
	if err := writeSysfs(filepath.Join(p.dir, attr), value); err != nil {
		return fmt.Errorf("pwm %s: %w", attr, err)
	}
	return nil
}

func writeSysfs(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
