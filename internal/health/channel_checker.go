package health

import "github.com/vladislavdragonenkov/ordersync/internal/channel"

// ChannelStatus — источник состояния live-канала для проверки здоровья.
type ChannelStatus interface {
	ConnectionState() channel.State
	LastError() error
}

// NewChannelChecker отображает состояние канала в статус компонента:
// live — healthy, опрос в деградации — degraded, остальное — unhealthy.
func NewChannelChecker(name string, source ChannelStatus) Checker {
	return CheckerFunc(func() Check {
		check := Check{Name: name}

		switch source.ConnectionState() {
		case channel.StateConnected:
			check.Status = StatusHealthy
		case channel.StateDegraded:
			check.Status = StatusDegraded
			check.Message = "live channel down, polling fallback active"
		case channel.StateConnecting, channel.StateError:
			check.Status = StatusDegraded
			check.Message = "live channel reconnecting"
		default:
			check.Status = StatusUnhealthy
			check.Message = "live channel disconnected"
		}

		if err := source.LastError(); err != nil && check.Message == "" {
			check.Message = err.Error()
		}
		return check
	})
}
