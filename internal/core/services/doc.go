// Package services implements the driving port interfaces.
// Services contain the core structuring logic and orchestrate
// calls to driven ports (adapters), the extractor and the stage pipeline.
package services
