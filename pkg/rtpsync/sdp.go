package rtpsync

import (
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

// clock rates of static payload types.
// Specification: RFC3551, section 6
var staticClockRates = map[uint8]int{
	0:  8000,
	3:  8000,
	4:  8000,
	5:  8000,
	6:  16000,
	7:  8000,
	8:  8000,
	9:  8000,
	10: 44100,
	11: 44100,
	12: 8000,
	13: 8000,
	14: 90000,
	15: 8000,
	16: 11025,
	17: 22050,
	18: 8000,
	25: 90000,
	26: 90000,
	28: 90000,
	31: 90000,
	32: 90000,
	33: 90000,
	34: 90000,
}

func getRTPMap(attributes []psdp.Attribute, payloadType uint8) string {
	for _, attr := range attributes {
		if attr.Key == "rtpmap" {
			v := strings.TrimSpace(attr.Value)
			if parts := strings.SplitN(v, " ", 2); len(parts) == 2 {
				if tmp, err := strconv.ParseUint(parts[0], 10, 7); err == nil && uint8(tmp) == payloadType {
					return parts[1]
				}
			}
		}
	}
	return ""
}

func hasPayloadType(md *psdp.MediaDescription, payloadType uint8) bool {
	for _, f := range md.MediaName.Formats {
		if tmp, err := strconv.ParseUint(f, 10, 7); err == nil && uint8(tmp) == payloadType {
			return true
		}
	}
	return false
}

// ClockRateFromSDP returns the clock rate of a payload type described in a SDP.
// The rtpmap attribute takes precedence over the static payload type table.
func ClockRateFromSDP(byts []byte, payloadType uint8) (int, error) {
	var sd psdp.SessionDescription
	err := sd.Unmarshal(byts)
	if err != nil {
		return 0, fmt.Errorf("invalid SDP: %w", err)
	}

	for _, md := range sd.MediaDescriptions {
		if !hasPayloadType(md, payloadType) {
			continue
		}

		rtpMap := getRTPMap(md.Attributes, payloadType)
		if rtpMap != "" {
			// encoding name / clock rate [/ channels]
			parts := strings.Split(rtpMap, "/")
			if len(parts) < 2 {
				return 0, fmt.Errorf("invalid rtpmap '%s'", rtpMap)
			}

			tmp, err := strconv.ParseUint(parts[1], 10, 31)
			if err != nil || tmp == 0 {
				return 0, fmt.Errorf("invalid clock rate '%s'", parts[1])
			}

			return int(tmp), nil
		}

		if v, ok := staticClockRates[payloadType]; ok {
			return v, nil
		}

		return 0, fmt.Errorf("unable to get clock rate of payload type %d", payloadType)
	}

	return 0, fmt.Errorf("payload type %d not found", payloadType)
}
