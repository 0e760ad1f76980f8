package l1inputs

// AnomalyThresholds holds the six anomalous-cell cuts. A tower is anomalous
// once any counter reaches its threshold.
type AnomalyThresholds struct {
	MaxBadEcalCells         uint32
	MaxRecoveredEcalCells   uint32
	MaxProblematicEcalCells uint32
	MaxBadHcalCells         uint32
	MaxRecoveredHcalCells   uint32
	MaxProblematicHcalCells uint32
}

// AnomalyReason names the first threshold a candidate hit, or "" if none.
// Candidates without tower data are never anomalous.
func (a AnomalyThresholds) AnomalyReason(c *Candidate) string {
	if c == nil || c.Tower == nil {
		return ""
	}
	t := c.Tower
	switch {
	case t.Ecal.Bad >= a.MaxBadEcalCells:
		return "bad_ecal_cells"
	case t.Ecal.Recovered >= a.MaxRecoveredEcalCells:
		return "recovered_ecal_cells"
	case t.Ecal.Problematic >= a.MaxProblematicEcalCells:
		return "problematic_ecal_cells"
	case t.Hcal.Bad >= a.MaxBadHcalCells:
		return "bad_hcal_cells"
	case t.Hcal.Recovered >= a.MaxRecoveredHcalCells:
		return "recovered_hcal_cells"
	case t.Hcal.Problematic >= a.MaxProblematicHcalCells:
		return "problematic_hcal_cells"
	}
	return ""
}

// IsAnomalous reports whether c must be excluded from clustering.
func (a AnomalyThresholds) IsAnomalous(c *Candidate) bool {
	return a.AnomalyReason(c) != ""
}
