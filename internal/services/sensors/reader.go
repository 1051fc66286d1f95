package sensors

// Logger is the leveled logger used by the reader.
type Logger interface {
	Warning(format string, v ...interface{})
}

// Reader samples both channels. Either channel may be nil.
type Reader struct {
	light   ADC
	air     ADC
	samples int
	logger  Logger
}

// NewReader creates a reader. light reports millivolts, air raw units.
func NewReader(light, air ADC, samples int, logger Logger) *Reader {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Reader{light: light, air: air, samples: samples, logger: logger}
}

// NewFileReader builds a reader over sysfs paths; an empty path disables
// that channel.
func NewFileReader(lightPath, airPath string, logger Logger) *Reader {
	var light, air ADC
	if lightPath != "" {
		light = FileADC{Path: lightPath}
	}
	if airPath != "" {
		air = FileADC{Path: airPath}
	}
	return NewReader(light, air, DefaultSamples, logger)
}

// Read returns the light percentage and air ppm. A missing or failing
// channel reads as 0 and is logged.
func (r *Reader) Read() (lightPercent, airPPM float64) {
	if r.light != nil {
		mv, err := Average(r.light, r.samples)
		if err != nil {
			r.logger.Warning("Light sensor read failed: %v", err)
		} else {
			lightPercent = LightPercent(mv)
		}
	}
	if r.air != nil {
		raw, err := Average(r.air, r.samples)
		if err != nil {
			r.logger.Warning("Air sensor read failed: %v", err)
		} else {
			airPPM = AirPPM(raw)
		}
	}
	return lightPercent, airPPM
}
