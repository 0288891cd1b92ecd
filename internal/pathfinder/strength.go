package pathfinder

// ConnectorStrength rates my relationship with a connector on a 1-10
// scale from email volume and recency of last contact
func ConnectorStrength(emailCount, daysSince int) int {
	var base int
	switch {
	case emailCount <= 5:
		base = 2
	case emailCount <= 20:
		base = 3 + (emailCount-5)/8
	case emailCount <= 50:
		base = 5 + (emailCount-20)/15
	default:
		base = 7
	}

	var recencyBonus int
	switch {
	case daysSince <= 30:
		recencyBonus = 3
	case daysSince <= 90:
		recencyBonus = 2
	case daysSince <= 180:
		recencyBonus = 1
	}

	strength := base + recencyBonus
	if strength > 10 {
		strength = 10
	}
	return strength
}

// PathStrength rates the overall quality of an introduction route on a
// 0-100 scale. Direct paths score from raw email volume; everything else
// scores from connector strength, discounted by tier.
func PathStrength(pathType PathType, emailCount, connectorStrength int) int {
	var base int
	if pathType == PathDirect {
		capped := emailCount
		if capped > 50 {
			capped = 50
		}
		base = capped * 2
	} else {
		base = connectorStrength * 10
	}
	return int(float64(base) * typeMultiplier[pathType])
}
