// Package sensors reads the light and air-quality ADC channels.
package sensors

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultSamples = 64

	lightFullScaleMillivolts = 1866.0
	airPPMPerUnit            = 0.01
)

// ADC yields one raw reading per call.
type ADC interface {
	Read() (float64, error)
}

// FileADC reads a number from a sysfs-style file such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type FileADC struct {
	Path string
}

func (a FileADC) Read() (float64, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", a.Path, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid reading in %s: %w", a.Path, err)
	}
	return v, nil
}

// Average reads n samples and returns their mean.
func Average(adc ADC, n int) (float64, error) {
	if n <= 0 {
		n = DefaultSamples
	}
	var sum float64
	for i := 0; i < n; i++ {
		v, err := adc.Read()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(n), nil
}

// LightPercent converts the light sensor voltage to a percentage of full scale.
func LightPercent(millivolts float64) float64 {
	return millivolts / lightFullScaleMillivolts * 100
}

// AirPPM converts the raw air-quality reading to ppm.
func AirPPM(raw float64) float64 {
	return raw * airPPMPerUnit
}
