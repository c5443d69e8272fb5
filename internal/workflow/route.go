package workflow

import "github.com/snapatlas/enrich/internal/model"

// Route names the pipeline branch taken after classification.
type Route string

const (
	// RouteEnd skips all remaining stages.
	RouteEnd Route = "end"
	// RouteScenic runs the context collector and location intelligence
	// before the generic generator.
	RouteScenic Route = "scenic"
	// RouteFood runs the restaurant matcher and the food generator.
	RouteFood Route = "food"
	// RouteCollectible runs the identify/valuate/describe pipeline.
	RouteCollectible Route = "collectible"
	// RouteGeneric runs the generic generator alone.
	RouteGeneric Route = "generic"
)

// RouteFor is the pure routing rule applied after classification. Every
// classification maps to exactly one route; an errored state always maps
// to RouteEnd.
func RouteFor(class model.Classification, failed, hasGPS bool) Route {
	if failed {
		return RouteEnd
	}
	switch class {
	case model.ClassFood:
		return RouteFood
	case model.ClassCollectible:
		return RouteCollectible
	case model.ClassScenery:
		if hasGPS {
			return RouteScenic
		}
		return RouteGeneric
	default:
		return RouteGeneric
	}
}
