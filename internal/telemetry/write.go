package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
	"github.com/Dicommunitas/terminal-3d-core/internal/simulation"
)

// WriteEquipmentMetric writes a single equipment measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteEquipmentMetric("T1", "level", 0.5)
//	client.WriteEquipmentMetric("P1", "flow_rate", 100)
func (c *Client) WriteEquipmentMetric(equipmentID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"equipment_metrics",
		map[string]string{
			"equipment_id": equipmentID,
			"measurement":  measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteOperationStatus writes one operation status or progress sample.
func (c *Client) WriteOperationStatus(op simulation.Operation) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"operations",
		map[string]string{
			"operation_id": op.ID,
			"op_type":      string(op.Type),
			"status":       string(op.Status),
		},
		map[string]interface{}{
			"progress":    op.Progress,
			"transferred": op.Transferred,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// Attach subscribes the client to the bus and streams every operation
// status sample and equipment change into InfluxDB. The returned
// subscriptions detach it again.
func (c *Client) Attach(bus *events.Bus) []*events.Subscription {
	opSub := bus.Subscribe(events.TopicOperationStatus, func(ev events.Event) {
		if op, ok := ev.Payload.(simulation.Operation); ok {
			c.WriteOperationStatus(op)
		}
	})
	eqSub := bus.Subscribe(events.TopicEquipmentChange, func(ev events.Event) {
		e, ok := ev.Payload.(entity.Equipment)
		if !ok {
			return
		}
		switch {
		case e.Tank != nil:
			c.WriteEquipmentMetric(e.ID, "level", e.Tank.Level)
			c.WriteEquipmentMetric(e.ID, "temperature", e.Tank.Temperature)
		case e.Pipe != nil:
			c.WriteEquipmentMetric(e.ID, "flow_rate", e.Pipe.FlowRate)
			c.WriteEquipmentMetric(e.ID, "pressure", e.Pipe.Pressure)
		}
	})
	return []*events.Subscription{opSub, eqSub}
}
