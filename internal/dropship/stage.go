package dropship

import (
	"strings"
	"unicode"

	"github.com/dropsync-next/internal/constants"
)

// trackingStageAliases 供应商原始物流状态到本地阶段的映射，键为去除标点后的小写形式
var trackingStageAliases = map[string]string{
	"processing":               constants.TrackingStageProcessing,
	"pending":                  constants.TrackingStageProcessing,
	"created":                  constants.TrackingStageProcessing,
	"inforeceived":             constants.TrackingStageProcessing,
	"awaitingshipment":         constants.TrackingStageProcessing,
	"dispatched":               constants.TrackingStageDispatched,
	"shipped":                  constants.TrackingStageDispatched,
	"pickedup":                 constants.TrackingStageDispatched,
	"handedover":               constants.TrackingStageDispatched,
	"enroute":                  constants.TrackingStageEnRoute,
	"intransit":                constants.TrackingStageEnRoute,
	"transit":                  constants.TrackingStageEnRoute,
	"departed":                 constants.TrackingStageEnRoute,
	"arrivedcourierfacility":   constants.TrackingStageArrivedCourierFacility,
	"arrivedatcourierfacility": constants.TrackingStageArrivedCourierFacility,
	"arrivedatfacility":        constants.TrackingStageArrivedCourierFacility,
	"arrivedatdestination":     constants.TrackingStageArrivedCourierFacility,
	"arrivedatsortingcenter":   constants.TrackingStageArrivedCourierFacility,
	"outfordelivery":           constants.TrackingStageOutForDelivery,
	"delivering":               constants.TrackingStageOutForDelivery,
	"availableforpickup":       constants.TrackingStageAvailableForPickup,
	"readyforpickup":           constants.TrackingStageAvailableForPickup,
	"awaitingpickup":           constants.TrackingStageAvailableForPickup,
	"unsuccessfuldelivery":     constants.TrackingStageUnsuccessfulDelivery,
	"deliveryfailed":           constants.TrackingStageUnsuccessfulDelivery,
	"failedattempt":            constants.TrackingStageUnsuccessfulDelivery,
	"undelivered":              constants.TrackingStageUnsuccessfulDelivery,
	"exception":                constants.TrackingStageUnsuccessfulDelivery,
	"delivered":                constants.TrackingStageDelivered,
	"signed":                   constants.TrackingStageDelivered,
	"received":                 constants.TrackingStageDelivered,
}

// MapTrackingStage 将供应商原始状态映射为本地物流阶段，无法识别时 ok=false
func MapTrackingStage(raw string) (string, bool) {
	key := normalizeStatusKey(raw)
	if key == "" {
		return "", false
	}
	stage, ok := trackingStageAliases[key]
	return stage, ok
}

func normalizeStatusKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
