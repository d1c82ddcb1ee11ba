package nmap

// ObjectType is the id of an entity in the current map format.
type ObjectType uint8

const (
	ObjectNinja            ObjectType = 0x00
	ObjectMine             ObjectType = 0x01
	ObjectGold             ObjectType = 0x02
	ObjectExit             ObjectType = 0x03
	ObjectExitSwitch       ObjectType = 0x04
	ObjectRegularDoor      ObjectType = 0x05
	ObjectLockedDoor       ObjectType = 0x06
	ObjectLockedDoorSwitch ObjectType = 0x07
	ObjectTrapDoor         ObjectType = 0x08
	ObjectTrapDoorSwitch   ObjectType = 0x09
	ObjectShoveThwump      ObjectType = 0x1C
)

// objectSpec describes how a type was stored by the legacy editor.
// legacy is -1 for types the legacy format has no block for.
type objectSpec struct {
	name   string
	attrs  int
	legacy int
}

var objectTable = [...]objectSpec{
	{name: "ninja", attrs: 2, legacy: 0},
	{name: "mine", attrs: 2, legacy: 1},
	{name: "gold", attrs: 2, legacy: 2},
	{name: "exit", attrs: 4, legacy: 3},
	{name: "exit switch", attrs: 0, legacy: -1},
	{name: "regular door", attrs: 3, legacy: 4},
	{name: "locked door", attrs: 5, legacy: 5},
	{name: "locked door switch", attrs: 0, legacy: -1},
	{name: "trap door", attrs: 5, legacy: 6},
	{name: "trap door switch", attrs: 0, legacy: -1},
	{name: "launch pad", attrs: 3, legacy: 7},
	{name: "one-way platform", attrs: 3, legacy: 8},
	{name: "chaingun drone", attrs: 4, legacy: 9},
	{name: "laser drone", attrs: 4, legacy: 10},
	{name: "zap drone", attrs: 4, legacy: 11},
	{name: "chase drone", attrs: 4, legacy: 12},
	{name: "floor guard", attrs: 2, legacy: 13},
	{name: "bounce block", attrs: 2, legacy: 14},
	{name: "rocket", attrs: 2, legacy: 15},
	{name: "gauss turret", attrs: 2, legacy: 16},
	{name: "thwump", attrs: 3, legacy: 17},
	{name: "toggle mine", attrs: 2, legacy: 18},
	{name: "evil ninja", attrs: 2, legacy: 19},
	{name: "laser turret", attrs: 4, legacy: 20},
	{name: "boost pad", attrs: 2, legacy: 21},
	{name: "deathball", attrs: 2, legacy: 22},
	{name: "micro drone", attrs: 4, legacy: 23},
	{name: "alt deathball", attrs: 2, legacy: 24},
	{name: "shove thwump", attrs: 2, legacy: 25},
}

func (t ObjectType) String() string {
	if int(t) < len(objectTable) {
		return objectTable[t].name
	}
	return "glitched object"
}

// Known reports whether the type exists in the object table. Higher ids
// show up in glitched maps and are carried through untouched.
func (t ObjectType) Known() bool {
	return int(t) < len(objectTable)
}

// IsDoor reports whether the type is a door stored together with its switch.
func (t ObjectType) IsDoor() bool {
	return t == ObjectLockedDoor || t == ObjectTrapDoor
}

// IsSwitch reports whether the type only exists as the second half of a door.
func (t ObjectType) IsSwitch() bool {
	return t == ObjectLockedDoorSwitch || t == ObjectTrapDoorSwitch
}

// companion returns the type stored in the trailing bytes of the same
// legacy record: the exit switch of an exit, the switch of a door.
func (t ObjectType) companion() (ObjectType, bool) {
	switch t {
	case ObjectExit, ObjectLockedDoor, ObjectTrapDoor:
		return t + 1, true
	}
	return 0, false
}

// isCompanion reports whether the type is only written as part of another
// type's legacy record.
func (t ObjectType) isCompanion() bool {
	return t == ObjectExitSwitch || t.IsSwitch()
}

// sortKey groups each switch with its door.
func (t ObjectType) sortKey() int {
	if t.IsSwitch() {
		return int(t) - 1
	}
	return int(t)
}

// legacyOrder lists the current types in the order their blocks appear
// in the legacy format.
func legacyOrder() []ObjectType {
	out := make([]ObjectType, 0, len(objectTable))
	for i := 0; ; i++ {
		found := false
		for id, spec := range objectTable {
			if spec.legacy == i {
				out = append(out, ObjectType(id))
				found = true
				break
			}
		}
		if !found {
			return out
		}
	}
}
