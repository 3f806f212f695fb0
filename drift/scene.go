package drift

// SceneKey identifies a scene by its source image pair
type SceneKey struct {
	File1 string `json:"file1"`
	File2 string `json:"file2"`
}

func (k SceneKey) String() string {
	return k.File1 + "___" + k.File2
}

// Scene is the set of observations sharing one (File1, File2) pair. Rows are
// indices into the observation table in their original order.
type Scene struct {
	ID   int      `json:"id"` // 1-based, in order of first appearance
	Key  SceneKey `json:"key"`
	Rows []int    `json:"rows"`
}

// Len returns the number of observations in the scene
func (s *Scene) Len() int {
	return len(s.Rows)
}

// GroupScenes partitions observations by (File1, File2). Scenes are returned
// in order of first appearance and each observation's Scene field is set to
// its scene ID. An empty File1 or File2 is an ordinary key value.
func GroupScenes(obs []Observation) ([]Scene, error) {
	index := make(map[SceneKey]int)
	var scenes []Scene

	for i := range obs {
		key := obs[i].SceneKey()
		pos, ok := index[key]
		if !ok {
			pos = len(scenes)
			index[key] = pos
			scenes = append(scenes, Scene{ID: pos + 1, Key: key})
		}
		scenes[pos].Rows = append(scenes[pos].Rows, i)
		obs[i].Scene = scenes[pos].ID
	}

	return scenes, nil
}
