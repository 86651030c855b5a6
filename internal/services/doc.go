// Package services wires riskcore's components together behind a
// registry so commands share one construction path.
package services
