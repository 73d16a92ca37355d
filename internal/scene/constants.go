package scene

// Scene geometry and body parameters. These mirror the browser scene so the
// client can render server snapshots without translation.
const (
	GroundID          = "ground"
	CarGroundID       = "carGround"
	DestroyerGroundID = "objectDestroyerGround"
	CarID             = "carCollider"

	GroundSize         = 50.0   // visible, textured ground
	CarGroundSize      = 1000.0 // invisible navigable plane
	DestroyerY         = -20.0
	Gravity            = -9.81
	GroundFriction     = 0.3
	DefaultPropDamping = 0.01

	CarWidth          = 3.5
	CarHeight         = 1.0
	CarDepth          = 1.5
	CarY              = 0.5
	CarMass           = 10.0
	CarLinearDamping  = 0.5
	CarInitialHeading = 1.5707963267948966 // 90 degrees

	MinPropSize = 1
	MaxPropSize = 5

	DefaultTickRate = 30
)
