// Package recommend produces the crop-specific care guidance attached to
// every prediction. Text assembly is deterministic; the keyword groups here
// deliberately differ from the bias table's (corn and the arai/siru keerais
// have score biases but no dedicated guidance branch).
package recommend

import "strings"

type family int

const (
	familyGeneric family = iota
	familyLeafyGreens
	familyTomato
	familyStrawberry
	familyPepper
)

func matchFamily(cropLabel string) family {
	crop := strings.ToLower(cropLabel)
	switch {
	case strings.Contains(crop, "palak"), strings.Contains(crop, "keerai"), strings.Contains(crop, "spinach"):
		return familyLeafyGreens
	case strings.Contains(crop, "tomato"):
		return familyTomato
	case strings.Contains(crop, "strawberry"):
		return familyStrawberry
	case strings.Contains(crop, "pepper"):
		return familyPepper
	default:
		return familyGeneric
	}
}

var healthyByFamily = map[family]string{
	familyLeafyGreens: "Leafy greens benefit from regular harvesting to encourage new growth. Maintain pH 6.0-6.5 and ensure adequate nitrogen. ",
	familyTomato:      "Monitor for early blight and ensure good air circulation. Support heavy fruit branches. ",
	familyStrawberry:  "Watch for powdery mildew and ensure good drainage. Remove runners for better fruit production. ",
	familyPepper:      "Maintain consistent moisture and watch for bacterial spot. Ensure adequate calcium. ",
}

var affectedByFamily = map[family]string{
	familyLeafyGreens: "3) Check for aphids and leaf miners (common in leafy greens), 4) Ensure proper air circulation to prevent downy mildew, ",
	familyTomato:      "3) Check for whiteflies, aphids, and early blight, 4) Remove affected leaves immediately, ",
	familyStrawberry:  "3) Look for spider mites and powdery mildew, 4) Improve air circulation and reduce humidity, ",
	familyPepper:      "3) Check for thrips and bacterial spot, 4) Ensure good drainage and avoid overhead watering, ",
	familyGeneric:     "3) Check root system for rot or discoloration, 4) Adjust nutrient solution pH and concentration, ",
}

// Generate returns the guidance string for a verdict and crop label. The
// wording matches what the web clients already display and is covered by
// tests; change it there first.
func Generate(isHealthy bool, cropLabel string) string {
	fam := matchFamily(cropLabel)

	var b strings.Builder
	if isHealthy {
		name := cropLabel
		if name == "" {
			name = "plant"
		}
		b.WriteString("Your " + name + " appears healthy! Continue with current care routine. ")
		b.WriteString(healthyByFamily[fam])
		b.WriteString("Monitor regularly for any changes in leaf color or texture. Check for pests weekly as prevention.")
		return b.String()
	}

	name := cropLabel
	if name == "" {
		name = "Plant"
	}
	b.WriteString(name + " shows signs of pest or disease. Immediate actions: ")
	b.WriteString("1) Isolate the plant to prevent spread, 2) Carefully inspect leaves and stems for pests, ")
	b.WriteString(affectedByFamily[fam])
	b.WriteString("5) Consider applying organic treatment like neem oil, 6) Monitor closely for 48-72 hours and adjust care as needed.")
	return b.String()
}
