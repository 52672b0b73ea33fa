package sony

import "github.com/hanwen/go-sonyptp/ptp"

// liveViewURL returns the stream URL the camera reports, or the
// configured default when it reports none.
func (s *Session) liveViewURL() string {
	props, err := s.t.Properties(ptp.DPC_SONY_LiveViewURL)
	if err != nil {
		s.log.PTP.Debugf("live view URL: %v", err)
		return s.opts.LiveViewURL
	}
	if p := findProperty(props, ptp.DPC_SONY_LiveViewURL); p != nil {
		if u, ok := p.CurrentValue.(string); ok && u != "" {
			return u
		}
	}
	return s.opts.LiveViewURL
}
