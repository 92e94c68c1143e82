package vocabulary

import "tutor/internal/domain"

// Builtin returns the built-in educational vocabulary.
func Builtin() []domain.VocabularyTerm {
	return []domain.VocabularyTerm{
		{Term: "diffusion", Weight: 2.0, Synonyms: []string{"spreading", "intermixing"},
			Definition: "Diffusion is the movement of particles from an area of higher concentration to an area of lower concentration until they are evenly mixed."},
		{Term: "matter", Weight: 1.6, Synonyms: []string{"substance"},
			Definition: "Matter is anything that has mass and takes up space."},
		{Term: "solid", Weight: 1.4,
			Definition: "A solid has a fixed shape and volume because its particles are packed closely together."},
		{Term: "liquid", Weight: 1.4, Synonyms: []string{"fluid"},
			Definition: "A liquid has a fixed volume but takes the shape of its container."},
		{Term: "gas", Weight: 1.4, Synonyms: []string{"vapor", "vapour"},
			Definition: "A gas has no fixed shape or volume and spreads out to fill its container."},
		{Term: "particle", Weight: 1.3, Synonyms: []string{"corpuscle"},
			Definition: "A particle is a very small piece of matter such as an atom or molecule."},
		{Term: "force", Weight: 1.3, Synonyms: []string{"push", "pull"},
			Definition: "A force is a push or pull that can change how an object moves."},
		{Term: "atom", Weight: 1.8,
			Definition: "An atom is the smallest unit of an element, made of protons, neutrons and electrons."},
		{Term: "molecule", Weight: 1.7,
			Definition: "A molecule is two or more atoms chemically bonded together."},
		{Term: "element", Weight: 1.5,
			Definition: "An element is a pure substance made of only one kind of atom."},
		{Term: "compound", Weight: 1.5,
			Definition: "A compound is a substance formed when two or more elements are chemically joined."},
		{Term: "photosynthesis", Weight: 2.0,
			Definition: "Photosynthesis is the process by which plants use sunlight, water and carbon dioxide to make glucose and release oxygen."},
		{Term: "chlorophyll", Weight: 1.6,
			Definition: "Chlorophyll is the green pigment in plants that absorbs light energy for photosynthesis."},
		{Term: "gravity", Weight: 1.9, Synonyms: []string{"gravitation"},
			Definition: "Gravity is the force of attraction between masses, which pulls objects toward the Earth."},
		{Term: "energy", Weight: 1.5,
			Definition: "Energy is the ability to do work or cause change."},
		{Term: "cell", Weight: 1.5,
			Definition: "A cell is the basic structural and functional unit of all living things."},
		{Term: "ecosystem", Weight: 1.6,
			Definition: "An ecosystem is a community of living things interacting with each other and their environment."},
		{Term: "evaporation", Weight: 1.6,
			Definition: "Evaporation is the change of a liquid into a gas at its surface."},
		{Term: "condensation", Weight: 1.6,
			Definition: "Condensation is the change of a gas into a liquid when it cools."},
		{Term: "temperature", Weight: 1.2,
			Definition: "Temperature measures how hot or cold something is."},
		{Term: "concentration", Weight: 1.4,
			Definition: "Concentration is the amount of a substance in a given volume."},
		{Term: "osmosis", Weight: 1.9,
			Definition: "Osmosis is the diffusion of water through a partially permeable membrane."},
		{Term: "membrane", Weight: 1.3,
			Definition: "A membrane is a thin layer that surrounds a cell and controls what enters and leaves."},
		{Term: "electron", Weight: 1.5,
			Definition: "An electron is a negatively charged particle that orbits the nucleus of an atom."},
		{Term: "nucleus", Weight: 1.5,
			Definition: "The nucleus is the dense centre of an atom, or the control centre of a cell."},
		{Term: "mass", Weight: 1.2,
			Definition: "Mass is the amount of matter in an object."},
		{Term: "volume", Weight: 1.1,
			Definition: "Volume is the amount of space something takes up."},
		{Term: "density", Weight: 1.4,
			Definition: "Density is mass per unit volume."},
		{Term: "velocity", Weight: 1.4, Synonyms: []string{"speed"},
			Definition: "Velocity is how fast something moves in a given direction."},
		{Term: "acceleration", Weight: 1.4,
			Definition: "Acceleration is the rate at which velocity changes."},
		{Term: "friction", Weight: 1.4,
			Definition: "Friction is a force that resists motion between surfaces in contact."},
		{Term: "oxygen", Weight: 1.2,
			Definition: "Oxygen is a gas that living things need for respiration."},
		{Term: "carbon dioxide", Weight: 1.3,
			Definition: "Carbon dioxide is a gas that plants take in for photosynthesis and animals breathe out."},
		{Term: "respiration", Weight: 1.6,
			Definition: "Respiration is the process cells use to release energy from food."},
		{Term: "evolution", Weight: 1.6,
			Definition: "Evolution is the change in living things over many generations."},
		{Term: "photon", Weight: 1.5,
			Definition: "A photon is a particle of light."},
		{Term: "hypothesis", Weight: 1.3,
			Definition: "A hypothesis is a testable prediction about how something works."},
		{Term: "experiment", Weight: 1.1,
			Definition: "An experiment is a test carried out to check a hypothesis."},
	}
}

// Default builds an Index from the built-in vocabulary.
func Default(opts ...Option) *Index {
	ix, err := New(Builtin(), opts...)
	if err != nil {
		panic("vocabulary: invalid built-in table: " + err.Error())
	}
	return ix
}
